// Package app wires configuration, logging, telemetry, the data pipeline,
// services and HTTP handlers into a runnable server.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, optional YAML file, BIKESHARE_* env)
//  2. Initialize the JSON logger and OpenTelemetry providers
//  3. Build the Loader and Pipeline from the sources and vocabularies
//  4. Create the dashboard and health services
//  5. Register middleware and routes on a chi router
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests and
// flushes telemetry. Initialization errors are returned; the package never
// calls os.Exit.
package app
