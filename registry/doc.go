/*
Package registry holds the type-keyed transform registry consulted by read
operations.

A transform turns a stored event row into a caller-defined value. Without a
registration, reads fall back to a reflective copy of the row's attributes
into the target type's exported fields; a registration takes precedence:

	registry.RegisterTransform(func(row table.Row) (OrderEvent, error) {
	    return OrderEvent{
	        Kind:   row.Properties["Kind"].(string),
	        Amount: row.Properties["Amount"].(float64),
	    }, nil
	})

Registrations are process-wide and are normally performed from init
functions, one per event type.
*/
package registry
