// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a patient",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Patient login",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/doctor_register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a doctor",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/doctor_login": {
            "post": {
                "tags": ["auth"],
                "summary": "Doctor login",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reset-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Reset password",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/refresh-token": {
            "post": {
                "tags": ["auth"],
                "summary": "Refresh session token",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/user/{email}": {
            "get": {
                "tags": ["users"],
                "summary": "Fetch a user profile",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/user/{email}/ecg-history": {
            "get": {
                "tags": ["users"],
                "summary": "Classification history",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/upload_profile_image": {
            "post": {
                "tags": ["users"],
                "summary": "Upload a profile image",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/get_doctors": {
            "get": {
                "tags": ["users"],
                "summary": "List doctors",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/get_ecg_data": {
            "get": {
                "tags": ["ecg"],
                "summary": "List a patient's ECG records",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/classify": {
            "post": {
                "tags": ["ecg"],
                "summary": "Classify an ECG signal",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/delete_ecg": {
            "post": {
                "tags": ["ecg"],
                "summary": "Delete an ECG record",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/simulate_ecg": {
            "post": {
                "tags": ["ecg"],
                "summary": "Submit a manually entered signal",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/store_ecg_signal": {
            "post": {
                "tags": ["ecg"],
                "summary": "Persist a device-acquired signal",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/upload_csv": {
            "post": {
                "tags": ["ecg"],
                "summary": "Upload a CSV file for classification",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/upload_csv_text": {
            "post": {
                "tags": ["ecg"],
                "summary": "Upload CSV text for classification",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/generate_ecg_image": {
            "post": {
                "tags": ["ecg"],
                "summary": "Render a signal as PNG",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/consult_doctor": {
            "post": {
                "tags": ["consultations"],
                "summary": "Request a doctor consultation",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/get_consultations": {
            "get": {
                "tags": ["consultations"],
                "summary": "List consultations",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reply_consultation": {
            "post": {
                "tags": ["consultations"],
                "summary": "Reply to a consultation",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/delete_consultation": {
            "post": {
                "tags": ["consultations"],
                "summary": "Delete a consultation",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ECG Health IQ API",
	Description:      "Patient and doctor ECG monitoring backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
