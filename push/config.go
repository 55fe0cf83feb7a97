package push

import "time"

// Config holds Web Push (VAPID) settings. Keys are generated once with
// webpush.GenerateVAPIDKeys and kept in the environment.
type Config struct {
	VAPIDPublicKey  string        `env:"VAPID_PUBLIC_KEY,required"`
	VAPIDPrivateKey string        `env:"VAPID_PRIVATE_KEY,required"`
	Subscriber      string        `env:"VAPID_SUBSCRIBER,required"` // mailto: contact for the push service
	TTL             time.Duration `env:"PUSH_TTL" envDefault:"1h"`
}
