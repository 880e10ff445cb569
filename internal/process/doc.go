// Package process isolates external compiler processes in their own process
// group so a timed-out compile can be killed together with its children
// (java, node and chromium all fork helpers).
package process
