// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Form Engine Maintainers",
            "url": "https://github.com/tbourn/go-form-engine/issues"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/forms": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Forms"],
                "summary": "List forms",
                "operationId": "listForms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListFormsResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Forms"],
                "summary": "Create a form",
                "operationId": "createForm",
                "parameters": [
                    {"description": "Form definition", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.FormInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.FormDefinition"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Slug already in use", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/forms/slug/{slug}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Forms"],
                "summary": "Get a form by slug",
                "operationId": "getFormBySlug",
                "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.FormDefinition"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/forms/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Forms"],
                "summary": "Get a form",
                "operationId": "getForm",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.FormDefinition"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Forms"],
                "summary": "Update a form",
                "operationId": "updateForm",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"description": "Form definition", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.FormInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.FormDefinition"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Slug already in use", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Forms"],
                "summary": "Delete a form",
                "operationId": "deleteForm",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/forms/{id}/schema": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Forms"],
                "summary": "Get the resolved schema of a form",
                "operationId": "getFormSchema",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/schema.FormSchema"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/forms/{id}/submissions": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Submissions"],
                "summary": "Submit a form",
                "description": "Validates, stores and announces a submission. Repeating a request with the same Idempotency-Key returns the original id and Idempotency-Replayed: true.",
                "operationId": "submitForm",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SubmitResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Form not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Could not save", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/submissions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Submissions"],
                "summary": "List submissions",
                "operationId": "listSubmissions",
                "parameters": [
                    {"type": "integer", "name": "form_id", "in": "query"},
                    {"type": "string", "name": "s", "in": "query"},
                    {"type": "string", "name": "order_by", "in": "query"},
                    {"type": "string", "name": "order", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListSubmissionsResponse"}},
                    "304": {"description": "Not Modified"},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/submissions/export": {
            "get": {
                "produces": ["text/csv"],
                "tags": ["Submissions"],
                "summary": "Export submissions as CSV",
                "operationId": "exportSubmissions",
                "parameters": [
                    {"type": "integer", "name": "form_id", "in": "query"},
                    {"type": "string", "name": "s", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "CSV file"},
                    "500": {"description": "Export failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/submissions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Submissions"],
                "summary": "Get a submission",
                "operationId": "getSubmission",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Submission"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Submissions"],
                "summary": "Delete a submission",
                "operationId": "deleteSubmission",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Get notifier settings",
                "operationId": "getSettings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SettingsResponse"}}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Update notifier settings",
                "operationId": "updateSettings",
                "parameters": [
                    {"description": "Settings to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SettingsResponse"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SettingsResponse"}},
                    "400": {"description": "Invalid setting", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.SubmitResponse": {
            "type": "object",
            "properties": {"submission_id": {"type": "integer"}}
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.ListFormsResponse": {
            "type": "object",
            "properties": {"forms": {"type": "array", "items": {"$ref": "#/definitions/services.FormDefinition"}}}
        },
        "handlers.ListSubmissionsResponse": {
            "type": "object",
            "properties": {
                "submissions": {"type": "array", "items": {"$ref": "#/definitions/domain.Submission"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.SettingsResponse": {
            "type": "object",
            "properties": {"settings": {"type": "object", "additionalProperties": {"type": "string"}}}
        },
        "services.FormInput": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "slug": {"type": "string"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/schema.FieldRow"}},
                "logic": {"type": "array", "items": {"type": "object"}},
                "integrations": {"type": "object"}
            }
        },
        "schema.FieldRow": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "label": {"type": "string"},
                "required": {"type": "boolean"},
                "sensitive": {"type": "boolean"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/schema.Option"}}
            }
        },
        "services.FormDefinition": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "slug": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "schema": {"$ref": "#/definitions/schema.FormSchema"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "schema.FormSchema": {
            "type": "object",
            "properties": {
                "version": {"type": "integer"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/schema.Field"}},
                "logic": {"type": "array", "items": {"type": "object"}},
                "integrations": {"type": "object"}
            }
        },
        "schema.Field": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["text", "email", "textarea", "select", "checkbox", "radio", "number"]},
                "label": {"type": "string"},
                "required": {"type": "boolean"},
                "sensitive": {"type": "boolean"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/schema.Option"}}
            }
        },
        "schema.Option": {
            "type": "object",
            "properties": {"label": {"type": "string"}, "value": {"type": "string"}}
        },
        "domain.Submission": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "form_id": {"type": "integer"},
                "data": {"type": "object", "additionalProperties": {"type": "string"}},
                "ip_address": {"type": "string"},
                "created_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Go Form Engine API",
	Description:      "Configurable forms: schema management, validated submissions, notifier settings and CSV export.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
