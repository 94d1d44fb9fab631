package ports

// DigitalInput is a sampled binary input such as a button or a switch.
type DigitalInput interface {
	// Asserted reports whether the input is in its active state.
	Asserted() (bool, error)
}
