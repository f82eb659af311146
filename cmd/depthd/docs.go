package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           depthd API
// @version         1.0
// @description     HTTP API for image-to-depth and image-to-3D-stereo conversion.
//
// @contact.name   depthd maintainers
// @contact.url    https://github.com/your-org/depthd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
