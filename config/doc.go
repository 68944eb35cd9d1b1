// Package config loads request collections: YAML (or JSON) files that name
// environments, file-wide defaults, request templates and suites.
//
// A collection looks like:
//
//	defaults:
//	  timeout: 5s
//	  headers:
//	    Accept: application/json
//	environments:
//	  dev:
//	    baseUrl: https://api-dev.example.com
//	    variables:
//	      userId: "1"
//	requests:
//	  getUser:
//	    method: GET
//	    url: /users/{{userId}}
//	    extract:
//	      email: $.email
//	    schema: user
//	  renameUser:
//	    method: PATCH
//	    url: /users/{{userId}}
//	    contentType: urlencoded
//	    body:
//	      name: "{{newName}}"
//	suites:
//	  rename:
//	    requests: [getUser, renameUser]
//	    variables:
//	      newName: Jo
//	schemas:
//	  user:
//	    type: object
//	    required: [email]
//
// Basic Usage:
//
//	cfg, err := config.LoadConfig("fetchx.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
//	    log.Fatal(errs[0])
//	}
//
//	call, err := cfg.BuildCall("getUser", cfg.Environments["dev"], nil)
//	resp, err := client.Do(ctx, call.Method, call.URL, call.Body, call.Options...)
//
// Variables are written {{name}} and are substituted in URLs, headers,
// params and every string inside a body.
package config
