// Package services implements the driving ports.
//
// IngestService turns an upload into a persisted vector index, AskService
// answers one question against such an index, FileService lists uploads and
// links to them, and SettingsService maps the config file onto AppSettings.
// Everything outside the process is reached through driven ports.
package services
