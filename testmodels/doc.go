/*
Package testmodels holds shared entity models used by the test suites.
*/
package testmodels
