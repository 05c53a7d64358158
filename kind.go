package storagedata

import "fmt"

// Kind selects one of the two logical storage namespaces.
type Kind int

const (
	// KindLocal is durable storage: values survive application restarts
	// (localStorage in a browser).
	KindLocal Kind = iota
	// KindSession is ephemeral storage: values are dropped when the session
	// ends (sessionStorage in a browser).
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindSession:
		return "session"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts "local"/"durable" and "session"/"ephemeral".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "local", "Local", "durable":
		return KindLocal, nil
	case "session", "Session", "ephemeral":
		return KindSession, nil
	default:
		return KindLocal, fmt.Errorf("storagedata: unknown storage kind %q", s)
	}
}

// UnmarshalText lets Kind be used directly in env-tagged config structs.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
