package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Annual Module Review API",
        "description": "Module annual-review tracking and reporting service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Modules", "description": "Module table with consolidated review state"},
        {"name": "Reviews", "description": "Annual review reports and themed points"},
        {"name": "Dashboard", "description": "Summary cards and chart aggregations"},
        {"name": "Reminders", "description": "Outstanding-review email sweep"}
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
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/modules": {
            "get": {
                "tags": ["Modules"],
                "summary": "List modules with per-variant review state",
                "parameters": [
                    {"name": "area", "in": "query", "type": "string"},
                    {"name": "location", "in": "query", "type": "string"},
                    {"name": "titleSearch", "in": "query", "type": "string"},
                    {"name": "codeSearch", "in": "query", "type": "string"},
                    {"name": "leadSearch", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "integer"},
                    {"name": "period", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/modules/export": {
            "get": {
                "tags": ["Modules"],
                "summary": "Export the filtered module table",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "area", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Rendered document"}
                }
            }
        },
        "/modules/{id}": {
            "get": {
                "tags": ["Modules"],
                "summary": "Module detail",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/modules/{id}/reviews": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Reviews for a module",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/leads": {
            "get": {
                "tags": ["Modules"],
                "summary": "List module leads",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reviews": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Record a review report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReviewRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/reviews/{id}": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Review detail",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Reviews"],
                "summary": "Amend a review in place",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/reviews/{id}/attachments/{kind}": {
            "put": {
                "tags": ["Reviews"],
                "summary": "Attach evidence or feedback upload",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "kind", "in": "path", "type": "string", "required": true, "enum": ["evidence", "feedback"]},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard card values",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "area", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/overview": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Full dashboard payload",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "area", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/good-practice-themes": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Good practice counts by theme",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "area", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/enhancement-themes": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Enhancement plan counts by theme",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "area", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/review-status": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Module counts by consolidated review status",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "area", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/run": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Queue reminder emails for incomplete reviews",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ThemedPointInput": {
            "type": "object",
            "properties": {
                "theme": {"type": "string", "enum": ["Assessment", "Learning and Teaching", "Course Design and Development", "Student Engagement"]},
                "description": {"type": "string"}
            },
            "required": ["theme", "description"]
        },
        "CreateReviewRequest": {
            "type": "object",
            "properties": {
                "module_id": {"type": "string"},
                "status": {"type": "string", "enum": ["Not Started", "In Progress", "Completed"]},
                "review_date": {"type": "string", "format": "date-time"},
                "enhance_update": {"type": "string"},
                "student_attainment": {"type": "string"},
                "module_feedback": {"type": "string"},
                "good_practice": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ThemedPointInput"}
                },
                "risks": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ThemedPointInput"}
                },
                "enhance_plans": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ThemedPointInput"}
                }
            },
            "required": ["module_id", "enhance_update"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
