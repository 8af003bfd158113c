// Package harness contains the parts of the test framework that talk to the backend under
// test: the startup status query and capability discovery, and a client for issuing
// requests and measuring how long they take.
package harness
