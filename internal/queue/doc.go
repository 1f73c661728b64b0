// Package queue runs a bounded number of tasks ahead of their consumer and
// hands the results back in submission order.
package queue
