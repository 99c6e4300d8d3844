package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Pace Projection API",
        "description": "Generates, versions and exports yearly pace projections for students.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Projections", "description": "Pace projection generation and versioning"},
        {"name": "Exports", "description": "CSV and PDF exports of stored projections"},
        {"name": "System", "description": "Instrumentation"}
    ],
    "paths": {
        "/projections/preview": {
            "post": {
                "tags": ["Projections"],
                "summary": "Generate a pace projection proposal without saving it",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProjectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Proposal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or fewer than 72 paces", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unplaceable input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projections/save": {
            "post": {
                "tags": ["Projections"],
                "summary": "Persist a previewed proposal as a new projection version",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveProjectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Proposal expired or unknown", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projections/generate": {
            "post": {
                "tags": ["Projections"],
                "summary": "Generate and save a projection in one call",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateProjectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Saved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projections": {
            "get": {
                "tags": ["Projections"],
                "summary": "List projection versions for a student's school year",
                "parameters": [
                    {"name": "studentId", "in": "query", "required": true, "type": "string"},
                    {"name": "schoolYearId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Versions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projections/{id}/paces": {
            "get": {
                "tags": ["Projections"],
                "summary": "Get the stored paces of a projection grouped by week",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Paces", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projections/{id}/publish": {
            "post": {
                "tags": ["Projections"],
                "summary": "Publish a projection and archive the previously published version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Archived projections cannot be published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projections/{id}": {
            "delete": {
                "tags": ["Projections"],
                "summary": "Delete a draft projection",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Not a draft", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projections/{id}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a CSV or PDF export of a projection",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via its signed token",
                "security": [],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["System"],
                "summary": "Instrumentation snapshot",
                "responses": {
                    "200": {"description": "Snapshot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SubjectRequest": {
            "type": "object",
            "required": ["subSubjectId", "startPace", "endPace"],
            "properties": {
                "subSubjectId": {"type": "string"},
                "startPace": {"type": "integer", "minimum": 1},
                "endPace": {"type": "integer", "minimum": 1},
                "skipPaces": {"type": "array", "items": {"type": "integer"}},
                "notPairWith": {"type": "array", "items": {"type": "string"}},
                "difficulty": {"type": "integer", "minimum": 1, "maximum": 5}
            }
        },
        "ProjectionRequest": {
            "type": "object",
            "required": ["studentId", "schoolYearId", "subjects"],
            "properties": {
                "studentId": {"type": "string"},
                "schoolYearId": {"type": "string"},
                "subjects": {"type": "array", "maxItems": 6, "items": {"$ref": "#/definitions/SubjectRequest"}}
            }
        },
        "GenerateProjectionRequest": {
            "type": "object",
            "required": ["studentId", "schoolYearId", "subjects"],
            "properties": {
                "studentId": {"type": "string"},
                "schoolYearId": {"type": "string"},
                "subjects": {"type": "array", "maxItems": 6, "items": {"$ref": "#/definitions/SubjectRequest"}},
                "publish": {"type": "boolean"}
            }
        },
        "SaveProjectionRequest": {
            "type": "object",
            "required": ["proposalId"],
            "properties": {
                "proposalId": {"type": "string"},
                "publish": {"type": "boolean"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
                "meta": {"type": "object"},
                "requestId": {"type": "string"}
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
