// Package docs holds the Swagger document served under /swagger. Keep it in
// step with the @Router annotations on the handlers.
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
    "paths": {
        "/setup": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Whether first-run setup has been completed",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Complete first-run setup and open a session",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/auth/unlock": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Verify the PIN and open a session",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tracker"],
                "summary": "Progress bars, current task and sync status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schedule": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tracker"],
                "summary": "Tasks for a day, with completion",
                "parameters": [{"type": "string", "description": "YYYY-MM-DD", "name": "date", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/sync/push": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["sync"],
                "summary": "Upload local state to the remote document",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "412": {"description": "Precondition Failed"},
                    "502": {"description": "Bad Gateway"}
                }
            }
        },
        "/sync/pull": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["sync"],
                "summary": "Download the remote document; ?force=true adopts it regardless of age",
                "parameters": [{"type": "boolean", "description": "adopt even if older", "name": "force", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/settings/qr/export": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json", "image/png"],
                "tags": ["settings"],
                "summary": "Build the device transfer payload, as JSON or ?format=png",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/settings/clear": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["settings"],
                "summary": "PIN-confirmed destructive action: remote, syllabus, progress or local",
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Syllabus Pulse API",
	Description:      "Study schedule, syllabus progress and cloud sync.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
