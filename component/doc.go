// Package component defines the lifecycle contract shared by long-running
// pieces such as the fake backend in apitest.
package component
