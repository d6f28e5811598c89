package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/thingful/thingful/internal/client"
)

var (
	version   string
	buildDate string
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// main parses command-line flags and dispatches to the requested command.
func main() {
	var (
		cmd      string
		baseURL  string
		caFile   string
		userName string
		password string
		thingID  int64
		rating   int
		text     string
		showVer  bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: register | things | thing | reviews | review")
	flag.StringVar(&baseURL, "url", "http://localhost:8000", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for HTTPS servers")
	flag.StringVar(&userName, "user", os.Getenv("THINGFUL_USER"), "user name for protected commands")
	flag.StringVar(&password, "password", os.Getenv("THINGFUL_PASSWORD"), "password for protected commands")
	flag.Int64Var(&thingID, "id", 0, "thing id")
	flag.IntVar(&rating, "rating", 0, "review rating, 1 to 5")
	flag.StringVar(&text, "text", "", "review text")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Thingful Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	httpClient, err := client.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}
	c := client.New(baseURL)
	c.HTTP = httpClient
	c.UserName, c.Password = userName, password

	ctx := context.Background()

	switch cmd {
	case "register":
		req, err := client.PromptRegistration(os.Stdin, os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
		user, err := c.Register(ctx, req)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(user)
	case "things":
		things, err := c.ListThings(ctx)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(things)
	case "thing":
		if thingID <= 0 {
			log.Fatal("please provide -id=<thing id>")
		}
		thing, err := c.GetThing(ctx, thingID)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(thing)
	case "reviews":
		if thingID <= 0 {
			log.Fatal("please provide -id=<thing id>")
		}
		reviews, err := c.ListReviews(ctx, thingID)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(reviews)
	case "review":
		if thingID <= 0 {
			log.Fatal("please provide -id=<thing id>")
		}
		review, err := c.CreateReview(ctx, thingID, rating, text)
		if err != nil {
			log.Fatal(err)
		}
		printJSON(review)
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}
