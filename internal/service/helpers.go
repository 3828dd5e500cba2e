package service

import "github.com/hackeval/hackeval-api/internal/repository"

func isDuplicateErr(err error) bool {
	return repository.IsUniqueViolation(err)
}
