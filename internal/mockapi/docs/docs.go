// Package docs registra la definición OpenAPI del backend demo para /swagger/*.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "message": {"type": "string"}
            }
        },
        "loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "tipo": {"type": "string", "enum": ["admin", "medico", "paciente"]}
            }
        }
    },
    "paths": {
        "/test": {
            "get": {
                "tags": ["sistema"],
                "summary": "Prueba de conectividad",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/envelope"}}}
            }
        },
        "/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/envelope"}}
                }
            }
        },
        "/register/paciente": {
            "post": {
                "tags": ["auth"],
                "summary": "Registro público de pacientes",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/envelope"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/envelope"}}
                }
            }
        },
        "/{collection}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["catalogo"],
                "summary": "Lista una colección",
                "parameters": [{"type": "string", "name": "collection", "in": "path", "required": true,
                    "description": "pacientes|medicos|administradores|especialidades|consultorios|eps"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/envelope"}}}
            }
        },
        "/citas": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["citas"],
                "summary": "Lista citas visibles para el usuario",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/envelope"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["citas"],
                "summary": "Crea una cita",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/envelope"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/envelope"}}
                }
            }
        },
        "/medico/citas/{id}/estado": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["medico"],
                "summary": "Cambia el estado de una cita",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/envelope"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/envelope"}}
                }
            }
        },
        "/admin/estadisticas": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Totales del sistema",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/envelope"}}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "EPS Citas API (demo)",
	Description:      "Backend demo del sistema de citas EPS.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
