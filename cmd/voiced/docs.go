package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           voiced API
// @version         1.0
// @description     HTTP API for voice-clone speech synthesis with on-demand model loading.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
