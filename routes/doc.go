// Package routes holds the dashboard's navigation table: six named pages,
// one of which takes the device MAC as a path parameter. It carries no
// routing behavior; callers use it to build deep links into the web UI.
package routes
