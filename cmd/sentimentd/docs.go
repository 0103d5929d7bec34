package main

// General API documentation for swaggo. Regenerate docs/ with
// `swag init -g cmd/sentimentd/docs.go` and build with -tags=swagger.
//
// @title           sentimentd API
// @version         1.0
// @description     HTTP API for sentiment classification with a pretrained model.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
