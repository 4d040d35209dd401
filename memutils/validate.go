package memutils

// Validatable is used by the DebugValidate method to allow it to act upon
// all types with a Validate method
type Validatable interface {
	Validate() error
}

// AssertionMode selects whether precondition and consistency assertions run. The zero value
// defers to the build: assertions are on when the debug_early_mem build tag is present.
type AssertionMode uint32

const (
	// AssertionsDefault enables assertions only in builds tagged debug_early_mem
	AssertionsDefault AssertionMode = iota
	// AssertionsEnabled enables assertions regardless of build tags
	AssertionsEnabled
	// AssertionsDisabled disables assertions regardless of build tags. Precondition violations
	// such as a malformed alignment then produce unchecked arithmetic.
	AssertionsDisabled
)

var assertionModeMapping = map[AssertionMode]string{
	AssertionsDefault:  "AssertionsDefault",
	AssertionsEnabled:  "AssertionsEnabled",
	AssertionsDisabled: "AssertionsDisabled",
}

func (m AssertionMode) String() string {
	return assertionModeMapping[m]
}

// Enabled reports whether assertions should run under this mode
func (m AssertionMode) Enabled() bool {
	switch m {
	case AssertionsEnabled:
		return true
	case AssertionsDisabled:
		return false
	default:
		return DebugAssertions
	}
}

// Validate calls Validate on the provided object and panics if an error is returned, but only
// when the mode is enabled.
func (m AssertionMode) Validate(validatable Validatable) {
	if !m.Enabled() {
		return
	}

	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// CheckPow2 panics with a wrapped PowerOfTwoError if value is zero or not a power of two, but only
// when the mode is enabled.
func (m AssertionMode) CheckPow2(value uintptr, name string) {
	if !m.Enabled() {
		return
	}

	err := CheckPow2(value, name)
	if err != nil {
		panic(err)
	}
}
