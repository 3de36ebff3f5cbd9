// Package bus defines the word-addressed register bus used by the device tree.
//
// The physical transport (SPI, I2C, memory-mapped firmware registers) is
// supplied by the caller. Memory is an in-process register file for tools and
// tests.
package bus
