// Package config loads the settings of the rainwise CLI.
//
// Sources are layered, later ones overriding earlier ones:
//
//  1. defaults (LoadDefaults);
//  2. a JSON file named with -c or -config;
//  3. RAINWISE_* environment variables;
//  4. command-line flags.
package config
