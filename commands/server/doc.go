/*
Package server implements the commands of the fluidad daemon: writing the
genesis application state and running the ABCI application together with
the read only HTTP query API.
*/
package server
