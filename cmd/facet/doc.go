// Command facet is the operator CLI for the facet inspection daemon.
package main
