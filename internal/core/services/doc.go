// Package services implements the driving port interfaces.
//
// BuildService runs the document-to-index pipeline against driven ports;
// InspectService reads back what a build wrote. Both share BuildDeps so a
// single wiring serves the build and inspect commands.
package services
