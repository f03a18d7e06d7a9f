/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension owns a single configuration entity stored under the "_c:"
prefixed key of its package name. The initial value is loaded from the genesis
file and can later be patched by the configuration owner.
*/
package gconf
