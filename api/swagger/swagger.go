package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ARM Book Deposit API",
        "description": "Book submission, review and certificate verification service for the JizzPI information resource center",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Reviewer login"},
        {"name": "Submissions", "description": "Book hand-over records and review workflow"},
        {"name": "Verification", "description": "Public certificate authenticity check"},
        {"name": "Documents", "description": "Printable certificate downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/verify": {
            "get": {
                "tags": ["Verification"],
                "summary": "Verify a certificate",
                "parameters": [
                    {"name": "verify", "in": "query", "type": "string", "required": true, "description": "Submission id from the QR code"}
                ],
                "responses": {
                    "200": {"description": "Record resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or revoked identifier"},
                    "503": {"description": "Store unavailable, retry later"}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate reviewer",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List submissions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated status filter"},
                    {"name": "period", "in": "query", "type": "string", "enum": ["all", "daily", "weekly", "monthly", "yearly"]},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit books",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"},
                    "503": {"description": "Store unavailable"}
                }
            }
        },
        "/api/v1/submissions/stats": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Submission counters",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "period", "in": "query", "type": "string", "enum": ["all", "daily", "weekly", "monthly", "yearly"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/submissions/export": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Export submissions report",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "period", "in": "query", "type": "string", "enum": ["all", "daily", "weekly", "monthly", "yearly"]}
                ],
                "responses": {
                    "200": {"description": "CSV report"}
                }
            }
        },
        "/api/v1/submissions/feed": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Live submissions feed",
                "security": [{"BearerAuth": []}],
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "Snapshot stream"}
                }
            }
        },
        "/api/v1/submissions/{id}": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Get a submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Submissions"],
                "summary": "Delete a submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/submissions/{id}/status": {
            "patch": {
                "tags": ["Submissions"],
                "summary": "Review a submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/api/v1/submissions/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "Certificate download links",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Signed links", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Submission not accepted yet"}
                }
            }
        },
        "/api/v1/documents/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a certificate",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "403": {"description": "Invalid or expired token"},
                    "404": {"description": "Document not found"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "BookItem": {
            "type": "object",
            "required": ["title", "type", "authors", "quantity"],
            "properties": {
                "title": {"type": "string"},
                "type": {"type": "string"},
                "authors": {"type": "string"},
                "quantity": {"type": "integer", "minimum": 1},
                "isbn": {"type": "string"},
                "publishedYear": {"type": "integer"}
            }
        },
        "CreateSubmissionRequest": {
            "type": "object",
            "required": ["fullName", "institution", "department", "position", "books"],
            "properties": {
                "fullName": {"type": "string"},
                "institution": {"type": "string"},
                "department": {"type": "string"},
                "position": {"type": "string"},
                "isExternal": {"type": "boolean"},
                "submissionDate": {"type": "string", "format": "date"},
                "books": {"type": "array", "items": {"$ref": "#/definitions/BookItem"}}
            }
        },
        "UpdateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["RECEIVED", "REJECTED"]}
            }
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
