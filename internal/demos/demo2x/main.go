package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-xlan/dlm-go-suo/locksession"
	"github.com/go-xlan/dlm-go-suo/storeadapter/memstore"
)

func main() {
	store := memstore.New()

	session := locksession.New(store, "demo-locks")
	defer session.Close()

	lock := session.CreateLock("app-lock",
		locksession.WithLeaseDuration(2*time.Minute),
		locksession.WithAcquireTimeout(5*time.Second),
	)

	fmt.Println("Beginning high-level lock operation...")

	// ScopedUse handles acquire on entry and release on every exit path, including panics.
	err := lock.ScopedUse(context.Background(), func(ctx context.Context) error {
		fmt.Println("Running protected zone with lock shield")
		fmt.Println("Handling main business code...")

		for i := 1; i <= 5; i++ {
			fmt.Printf("Phase %d/5 working...\n", i)
			time.Sleep(300 * time.Millisecond)
		}

		fmt.Println("Business code finished!")
		return nil
	})

	if err != nil {
		fmt.Printf("Lock action failed: %v\n", err)
		return
	}

	fmt.Println("Lock action finished!")
}
