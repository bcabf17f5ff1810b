package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Survey Reconciliation API",
        "description": "Merges child assessment submissions from two upstream sources and validates them against task schemas.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Submissions", "description": "Raw submission ingestion and lookup"},
        {"name": "Reconcile", "description": "Cross-source record merging"},
        {"name": "Validation", "description": "Task scoring and termination checks"},
        {"name": "Schema", "description": "Task definition registry"},
        {"name": "Reports", "description": "Async CSV/PDF export"},
        {"name": "System", "description": "Health and runtime counters"}
    ],
    "paths": {
        "/submissions": {
            "get": {
                "tags": ["Submissions"],
                "summary": "List stored submissions",
                "parameters": [
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "source", "in": "query", "type": "string", "enum": ["source-a", "source-b"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Submissions"],
                "summary": "Ingest a raw submission",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IngestSubmissionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/submissions/{id}": {
            "delete": {
                "tags": ["Submissions"],
                "summary": "Delete a submission",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/subjects/{subjectId}/merged": {
            "get": {
                "tags": ["Reconcile"],
                "summary": "Merged view of one subject",
                "parameters": [
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Subject has no submissions"}
                }
            }
        },
        "/reconcile": {
            "post": {
                "tags": ["Reconcile"],
                "summary": "Reconcile records across sources",
                "description": "With a body of raw records, merges them in place. With an empty body, reconciles every stored subject.",
                "parameters": [
                    {"name": "request", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ReconcileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed body"}
                }
            }
        },
        "/subjects/{subjectId}/validation": {
            "get": {
                "tags": ["Validation"],
                "summary": "Validate a stored subject",
                "parameters": [
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"},
                    {"name": "tasks", "in": "query", "type": "string", "description": "Comma-separated task identifiers"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Subject has no submissions"}
                }
            }
        },
        "/validate": {
            "post": {
                "tags": ["Validation"],
                "summary": "Validate raw records without persisting them",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Schema"],
                "summary": "List known task identifiers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks/{taskId}": {
            "get": {
                "tags": ["Schema"],
                "summary": "Task definition by identifier",
                "parameters": [
                    {"name": "taskId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown task"}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a validation report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Report export disabled"}
                }
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job"}
                }
            }
        },
        "/reports/{id}/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a completed report",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "404": {"description": "Report not ready or unknown"}
                }
            }
        },
        "/status": {
            "get": {
                "tags": ["System"],
                "summary": "Runtime counters snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "IngestSubmissionRequest": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "externalId": {"type": "string"},
                "source": {"type": "string", "enum": ["source-a", "source-b"]},
                "sessionKey": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "answers": {"type": "object"}
            },
            "required": ["subjectId", "externalId", "source", "answers"]
        },
        "ValidateRequest": {
            "type": "object",
            "properties": {
                "form": {"type": "array", "items": {"$ref": "#/definitions/RawRecord"}},
                "survey": {"type": "array", "items": {"$ref": "#/definitions/RawRecord"}},
                "tasks": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ReconcileRequest": {
            "type": "object",
            "properties": {
                "form": {"type": "array", "items": {"$ref": "#/definitions/RawRecord"}},
                "survey": {"type": "array", "items": {"$ref": "#/definitions/RawRecord"}}
            }
        },
        "RawRecord": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "externalId": {"type": "string"},
                "source": {"type": "string"},
                "sessionKey": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "answers": {"type": "object"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "grade": {"type": "integer"},
                "format": {"type": "string", "enum": ["CSV", "PDF"]}
            },
            "required": ["format"]
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
