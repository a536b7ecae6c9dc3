package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/dmitrymomot/twofactor/pkg/secrets"
)

func main() {
	keyID := flag.Uint("id", 1, "key id to pair with the generated key")
	flag.Parse()

	key, err := secrets.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate encryption key: %v", err)
	}

	fmt.Printf("TWOFACTOR_ENCRYPTION_KEY=%s\nTWOFACTOR_ENCRYPTION_KEY_ID=%d\n", secrets.EncodeKey(key), *keyID)
}
