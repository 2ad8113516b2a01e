// Package docs holds the registered OpenAPI document served under /swagger/.
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
		"/api/events": {
			"get": {
				"description": "Paginated public events ordered by start date.",
				"produces": [
					"application/json"
				],
				"tags": [
					"events"
				],
				"summary": "List public events",
				"parameters": [
					{
						"type": "string",
						"description": "Text search",
						"name": "search",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Comma-separated tag names",
						"name": "tags",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page number (default 1)",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size (default 12, max 100)",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/controllers.EventPageSuccessResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Creates an event organized by the caller.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"events"
				],
				"summary": "Create an event",
				"parameters": [
					{
						"description": "Event data",
						"name": "event",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/controllers.CreateEventRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/controllers.EventDetailsSuccessResponse"
						}
					},
					"400": {
						"description": "error.code: bad_request",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"401": {
						"description": "error.code: unauthorized",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			}
		},
		"/api/events/{eventID}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"events"
				],
				"summary": "Get event details",
				"parameters": [
					{
						"type": "string",
						"description": "Event ID (UUID)",
						"name": "eventID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/controllers.EventDetailsSuccessResponse"
						}
					},
					"400": {
						"description": "error.code: bad_request",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"401": {
						"description": "error.code: unauthorized",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"404": {
						"description": "error.code: not_found",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			},
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"events"
				],
				"summary": "Update an event",
				"parameters": [
					{
						"type": "string",
						"description": "Event ID (UUID)",
						"name": "eventID",
						"in": "path",
						"required": true
					},
					{
						"description": "Fields to update (all optional)",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/controllers.UpdateEventRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/controllers.EventDetailsSuccessResponse"
						}
					},
					"400": {
						"description": "error.code: bad_request",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"401": {
						"description": "error.code: unauthorized",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"403": {
						"description": "error.code: forbidden (not organizer)",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"404": {
						"description": "error.code: not_found",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"events"
				],
				"summary": "Delete an event",
				"parameters": [
					{
						"type": "string",
						"description": "Event ID (UUID)",
						"name": "eventID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "data.status: deleted",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"401": {
						"description": "error.code: unauthorized",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"403": {
						"description": "error.code: forbidden (not organizer)",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"404": {
						"description": "error.code: not_found",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			}
		},
		"/api/events/{eventID}/join": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"participation"
				],
				"summary": "Join an event",
				"parameters": [
					{
						"type": "string",
						"description": "Event ID (UUID)",
						"name": "eventID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "data.status: joined",
						"schema": {
							"$ref": "#/definitions/controllers.ParticipationSuccessResponse"
						}
					},
					"401": {
						"description": "error.code: unauthorized",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"404": {
						"description": "error.code: not_found",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"409": {
						"description": "error.code: already_participating or event_full",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			}
		},
		"/api/events/{eventID}/leave": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"participation"
				],
				"summary": "Leave an event",
				"parameters": [
					{
						"type": "string",
						"description": "Event ID (UUID)",
						"name": "eventID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "data.status: left",
						"schema": {
							"$ref": "#/definitions/controllers.ParticipationSuccessResponse"
						}
					},
					"401": {
						"description": "error.code: unauthorized",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"409": {
						"description": "error.code: not_participating",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			}
		},
		"/api/users/me/events": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"events"
				],
				"summary": "List my events",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/controllers.EventSummariesSuccessResponse"
						}
					},
					"401": {
						"description": "error.code: unauthorized",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			}
		},
		"/api/tags": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"tags"
				],
				"summary": "List tags",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/controllers.ListTagsSuccessResponse"
						}
					},
					"500": {
						"description": "error.code: internal_error",
						"schema": {
							"$ref": "#/definitions/helpers.APIResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"helpers.APIError": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		},
		"helpers.APIResponse": {
			"type": "object",
			"properties": {
				"data": {},
				"error": {
					"$ref": "#/definitions/helpers.APIError"
				}
			}
		},
		"domain.Tag": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				}
			}
		},
		"domain.EventSummary": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"starts_at": {
					"type": "string"
				},
				"location": {
					"type": "string"
				},
				"capacity": {
					"type": "integer"
				},
				"visibility": {
					"type": "string",
					"enum": [
						"Public",
						"Private"
					]
				},
				"organizer_id": {
					"type": "string"
				},
				"participant_count": {
					"type": "integer"
				},
				"tags": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.Tag"
					}
				}
			}
		},
		"domain.EventDetails": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"starts_at": {
					"type": "string"
				},
				"location": {
					"type": "string"
				},
				"capacity": {
					"type": "integer"
				},
				"visibility": {
					"type": "string",
					"enum": [
						"Public",
						"Private"
					]
				},
				"organizer_id": {
					"type": "string"
				},
				"participant_count": {
					"type": "integer"
				},
				"tags": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.Tag"
					}
				},
				"organizer_name": {
					"type": "string"
				},
				"participant_names": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"domain.EventPage": {
			"type": "object",
			"properties": {
				"events": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.EventSummary"
					}
				},
				"total_count": {
					"type": "integer"
				},
				"page": {
					"type": "integer"
				},
				"page_size": {
					"type": "integer"
				},
				"total_pages": {
					"type": "integer"
				}
			}
		},
		"controllers.CreateEventRequest": {
			"type": "object",
			"required": [
				"location",
				"starts_at",
				"title"
			],
			"properties": {
				"title": {
					"type": "string",
					"maxLength": 200
				},
				"description": {
					"type": "string",
					"maxLength": 2000
				},
				"starts_at": {
					"type": "string"
				},
				"location": {
					"type": "string",
					"maxLength": 255
				},
				"capacity": {
					"type": "integer",
					"maximum": 2147483647,
					"minimum": 1
				},
				"visibility": {
					"type": "string"
				},
				"tags": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"controllers.UpdateEventRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"starts_at": {
					"type": "string"
				},
				"location": {
					"type": "string"
				},
				"capacity": {
					"type": "integer"
				},
				"visibility": {
					"type": "string"
				},
				"tags": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"controllers.ParticipationResponse": {
			"type": "object",
			"properties": {
				"event_id": {
					"type": "string"
				},
				"status": {
					"type": "string"
				}
			}
		},
		"controllers.EventPageSuccessResponse": {
			"type": "object",
			"properties": {
				"data": {
					"$ref": "#/definitions/domain.EventPage"
				},
				"error": {
					"$ref": "#/definitions/helpers.APIError"
				}
			}
		},
		"controllers.EventDetailsSuccessResponse": {
			"type": "object",
			"properties": {
				"data": {
					"$ref": "#/definitions/domain.EventDetails"
				},
				"error": {
					"$ref": "#/definitions/helpers.APIError"
				}
			}
		},
		"controllers.EventSummariesSuccessResponse": {
			"type": "object",
			"properties": {
				"data": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.EventSummary"
					}
				},
				"error": {
					"$ref": "#/definitions/helpers.APIError"
				}
			}
		},
		"controllers.ListTagsSuccessResponse": {
			"type": "object",
			"properties": {
				"data": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.Tag"
					}
				},
				"error": {
					"$ref": "#/definitions/helpers.APIError"
				}
			}
		},
		"controllers.ParticipationSuccessResponse": {
			"type": "object",
			"properties": {
				"data": {
					"$ref": "#/definitions/controllers.ParticipationResponse"
				},
				"error": {
					"$ref": "#/definitions/helpers.APIError"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and the JWT.",
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event Hub API",
	Description:      "Event discovery, participation and capacity enforcement.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
