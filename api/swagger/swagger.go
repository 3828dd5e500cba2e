package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HackEval API",
        "description": "AI-assisted hackathon evaluation platform",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Password and magic-link authentication"},
        {"name": "Users", "description": "User directory administration"},
        {"name": "Hackathons", "description": "Hackathon catalog"},
        {"name": "Conversations", "description": "AI conversation threads"},
        {"name": "Evaluations", "description": "Examiner grading and exports"},
        {"name": "Metrics", "description": "Runtime metrics"}
    ],
    "paths": {
        "/auth/credentials": {
            "post": {
                "tags": ["Auth"],
                "summary": "Password login for staff",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"},
                    "403": {"description": "Students must use magic links"}
                }
            }
        },
        "/auth/magic-link": {
            "post": {
                "tags": ["Auth"],
                "summary": "Request a magic login link",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MagicLinkRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/auth/magic-link/verify": {
            "get": {
                "tags": ["Auth"],
                "summary": "Exchange a magic-link token for an access token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Token missing"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already used"}
                }
            }
        },
        "/users/import": {
            "post": {
                "tags": ["Users"],
                "summary": "Import users from a CSV roster",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Import report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/hackathons": {
            "get": {
                "tags": ["Hackathons"],
                "summary": "List hackathons",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Hackathons"],
                "summary": "Create hackathon",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHackathonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/hackathons/{id}": {
            "get": {
                "tags": ["Hackathons"],
                "summary": "Get hackathon",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Hackathons"],
                "summary": "Update hackathon",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHackathonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Hackathons"],
                "summary": "Delete hackathon",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/hackathons/{id}/tasks": {
            "get": {
                "tags": ["Hackathons"],
                "summary": "List hackathon tasks",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conversations": {
            "get": {
                "tags": ["Conversations"],
                "summary": "List conversations for grading",
                "parameters": [
                    {"name": "hackathonId", "in": "query", "type": "string"},
                    {"name": "taskId", "in": "query", "type": "string"},
                    {"name": "withFinalVersion", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Conversations"],
                "summary": "Open a conversation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateConversationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conversations/{id}": {
            "get": {
                "tags": ["Conversations"],
                "summary": "Get conversation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/conversations/{id}/messages": {
            "post": {
                "tags": ["Conversations"],
                "summary": "Send a prompt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendPromptRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Quota exceeded"},
                    "409": {"description": "Final answer already submitted"},
                    "500": {"description": "Generation failed"}
                }
            }
        },
        "/conversations/{id}/final-submission": {
            "post": {
                "tags": ["Conversations"],
                "summary": "Submit the final answer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FinalSubmissionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already submitted"}
                }
            }
        },
        "/conversations/student/{id}": {
            "get": {
                "tags": ["Conversations"],
                "summary": "List a student's conversations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "includeMessages", "in": "query", "type": "boolean", "description": "Return full threads instead of previews"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "List own evaluations",
                "parameters": [
                    {"name": "hackathonId", "in": "query", "type": "string"},
                    {"name": "taskId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Evaluations"],
                "summary": "Grade a conversation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEvaluationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or blank comment"},
                    "409": {"description": "Already graded by this examiner"}
                }
            }
        },
        "/evaluations/examiner/{id}": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "List an examiner's evaluations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "hackathonId", "in": "query", "type": "string"},
                    {"name": "taskId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Examiners can only read their own grades"}
                }
            }
        },
        "/evaluations/student/{id}": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "List a student's evaluations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/export": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Export own evaluations as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "hackathonId", "in": "query", "type": "string"},
                    {"name": "taskId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document"}
                }
            }
        },
        "/evaluations/export/archived/{token}": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Re-download an archived export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Document"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/metrics/snapshot": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Runtime metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "MagicLinkRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"}
            },
            "required": ["email"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "givenName": {"type": "string"},
                "familyName": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"},
                "studentNumber": {"type": "string"}
            },
            "required": ["givenName", "familyName", "email", "role"]
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "givenName": {"type": "string"},
                "familyName": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "studentNumber": {"type": "string"}
            }
        },
        "CreateHackathonRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "objectives": {"type": "string"},
                "dates": {"$ref": "#/definitions/DateRange"},
                "anonymityEnabled": {"type": "boolean"},
                "quotas": {"$ref": "#/definitions/Quotas"},
                "tasks": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"}
            },
            "required": ["name"]
        },
        "DateRange": {
            "type": "object",
            "properties": {
                "debut": {"type": "string"},
                "fin": {"type": "string"}
            },
            "required": ["debut", "fin"]
        },
        "Quotas": {
            "type": "object",
            "properties": {
                "promptsPerStudent": {"type": "integer"},
                "tokensPerStudent": {"type": "integer"}
            }
        },
        "CreateConversationRequest": {
            "type": "object",
            "properties": {
                "hackathonId": {"type": "string"},
                "taskId": {"type": "string"},
                "groupId": {"type": "string"},
                "modelName": {"type": "string"}
            },
            "required": ["hackathonId", "taskId"]
        },
        "SendPromptRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "modelName": {"type": "string"}
            },
            "required": ["content"]
        },
        "FinalSubmissionRequest": {
            "type": "object",
            "properties": {
                "promptFinal": {"type": "string"},
                "finalResponse": {"type": "string"}
            },
            "required": ["promptFinal", "finalResponse"]
        },
        "CreateEvaluationRequest": {
            "type": "object",
            "properties": {
                "conversationId": {"type": "string"},
                "studentId": {"type": "string"},
                "examinerId": {"type": "string"},
                "note": {"type": "integer", "minimum": 1, "maximum": 10},
                "comment": {"type": "string"}
            },
            "required": ["conversationId", "note", "comment"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
