// Package testsupport provides shared fixtures for package tests: tiny
// encoded images, temp-directory configs, and in-memory collaborator
// fakes.
package testsupport
