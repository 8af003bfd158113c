// Package report presents the results of a contract test run: a console summary, a JSON
// document for CI systems, and Prometheus metrics in the node_exporter textfile format.
package report
