// Package portal holds the OpenAPI document served at /swagger/.
//
// It is maintained by hand in the layout swag init produces; regenerate with
// `swag init -g internal/portal/http/router.go -o api/portal` after adding
// annotated handlers.
package portal

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
    "paths": {
        "/login": {
            "post": {
                "description": "Authenticates the form credentials and starts a session. The configured admin credentials always yield an admin session. Failures redirect to /login?error=...",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["Session"],
                "summary": "Log in",
                "parameters": [
                    {"type": "string", "description": "Account email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Account password", "name": "password", "in": "formData", "required": true},
                    {"enum": ["user", "admin"], "type": "string", "description": "Selected role", "name": "role", "in": "formData"}
                ],
                "responses": {
                    "302": {"description": "Redirect to /home or /admin with the session cookie set", "schema": {"type": "string"}}
                }
            }
        },
        "/logout": {
            "get": {
                "tags": ["Session"],
                "summary": "Log out",
                "responses": {
                    "302": {"description": "Redirect to /", "schema": {"type": "string"}}
                }
            }
        },
        "/signup": {
            "post": {
                "description": "Creates an unverified account and emails a verification link valid for 24 hours. Failures redirect to /signup?error=...",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["Registration"],
                "summary": "Sign up",
                "parameters": [
                    {"type": "string", "description": "Display name", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "description": "Account email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "description": "Password again", "name": "confirmPassword", "in": "formData", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to /login?message=...", "schema": {"type": "string"}}
                }
            }
        },
        "/verify-email": {
            "get": {
                "description": "Consumes a single-use verification token and marks the account verified. The outcome is rendered as an HTML page.",
                "produces": ["text/html"],
                "tags": ["Registration"],
                "summary": "Verify email",
                "parameters": [
                    {"type": "string", "description": "Verification token from the email", "name": "token", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Outcome page", "schema": {"type": "string"}}
                }
            }
        },
        "/forgot-password": {
            "post": {
                "description": "Emails a one hour reset link when the address belongs to an account. The response is the same either way. An empty email or an internal failure redirects with ?error=...",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["Recovery"],
                "summary": "Request password reset",
                "parameters": [
                    {"type": "string", "description": "Account email", "name": "email", "in": "formData", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to /forgot-password?message=...", "schema": {"type": "string"}}
                }
            }
        },
        "/reset-password": {
            "get": {
                "produces": ["text/html"],
                "tags": ["Recovery"],
                "summary": "Password reset form",
                "parameters": [
                    {"type": "string", "description": "Reset token from the email", "name": "token", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Form page", "schema": {"type": "string"}}
                }
            },
            "post": {
                "description": "Consumes a single-use reset token. The outcome is rendered on the reset form page.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/html"],
                "tags": ["Recovery"],
                "summary": "Reset password",
                "parameters": [
                    {"type": "string", "description": "Reset token", "name": "token", "in": "formData", "required": true},
                    {"type": "string", "description": "New password", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "description": "New password again", "name": "confirmPassword", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Outcome page", "schema": {"type": "string"}}
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Liveness probe endpoint returning basic service health status, uptime, and version information\nThis endpoint always returns 200 OK if the service is running",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Readiness probe checking the database and, when sessions live in redis, the redis connection",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "status, uptime, version, checks - service not ready", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "sessions": {"type": "string"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"$ref": "#/definitions/http.HealthChecks"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:5000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Campus Portal API",
	Description:      "Identity endpoints of the college management portal: session login, signup with email verification and password recovery.\n\nForm endpoints answer with redirects or HTML pages; only the health probes return JSON.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
