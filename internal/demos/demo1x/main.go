package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-xlan/dlm-go-suo/locksession"
	"github.com/go-xlan/dlm-go-suo/storeadapter/memstore"
)

func main() {
	// In-memory store stands in for a real DynamoDB/Redis table in this walkthrough.
	store := memstore.New()

	session := locksession.New(store, "demo-locks")
	defer session.Close()

	lock := session.CreateLock("demo-lock",
		locksession.WithLeaseDuration(5*time.Second),
		locksession.WithAcquireTimeout(time.Second),
	)

	ctx := context.Background()
	if err := lock.Acquire(ctx); err != nil {
		fmt.Println("lock unavailable:", err)
		return
	}

	fmt.Println("lock acquired, held =", lock.IsHeld())

	// Run protected code
	fmt.Println("Running protected zone...")
	time.Sleep(time.Second) // Mock task

	if err := lock.Release(ctx); err != nil {
		fmt.Println("release failed:", err)
		return
	}
	fmt.Println("lock released")
}
