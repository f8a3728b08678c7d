// Package infra contains technical adapters: travel providers, day stores,
// the shared travel cache, MQTT notification, metric sinks and error
// monitoring. These packages depend only on the interfaces defined in the
// core packages.
package infra
