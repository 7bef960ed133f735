package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/": {
            "get": {
                "tags": ["static"],
                "summary": "Editor page",
                "description": "Serve the editor's index.html",
                "produces": ["text/html"],
                "responses": {
                    "200": {
                        "description": "HTML document"
                    },
                    "404": {
                        "description": "index.html is missing",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/save": {
            "post": {
                "tags": ["documents"],
                "summary": "Save the document",
                "description": "Replace the stored document with the raw request body",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "query",
                        "name": "slot",
                        "type": "string",
                        "description": "Slot name (default or slotN)",
                        "required": false
                    },
                    {
                        "in": "body",
                        "name": "document",
                        "description": "Any JSON value",
                        "required": true,
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Saved",
                        "schema": {"$ref": "#/definitions/ports.StatusResponse"}
                    },
                    "400": {
                        "description": "Invalid slot, encoding or JSON",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "413": {
                        "description": "Body exceeds the configured limit",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "500": {
                        "description": "Storage error",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/load": {
            "get": {
                "tags": ["documents"],
                "summary": "Load the document",
                "description": "Return the stored document, or an empty object if nothing was saved yet",
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "query",
                        "name": "slot",
                        "type": "string",
                        "description": "Slot name (default or slotN)",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "The stored document",
                        "schema": {"type": "object"}
                    },
                    "400": {
                        "description": "Invalid slot",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    },
                    "500": {
                        "description": "Storage error or corrupt stored document",
                        "schema": {"$ref": "#/definitions/http.ErrorResponse"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health Check",
                "description": "Check if server is running",
                "responses": {
                    "200": {
                        "description": "Server is healthy"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness Check",
                "description": "Check that the storage backend is reachable",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Storage not ready"
                    }
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer"},
                "request_id": {"type": "string"}
            }
        },
        "ports.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "hudstore API",
	Description:      "Save and load endpoints for the HUD editor",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
