// Package sdk is a Go client for a json-server instance.
//
//	client, _ := sdk.New("http://localhost:3000")
//	posts := client.Resource("posts")
//	created, _ := posts.Create(ctx, sdk.Record{"title": "hello"})
//	page, _ := posts.List(ctx, sdk.ListOptions{Sort: "title", Order: sdk.Desc, End: sdk.Int(10)})
//	fmt.Println(page.Total, len(page.Items))
//
// Nested routes scope a listing to the children of one parent record:
//
//	comments, _ := client.Resource("comments").List(ctx, sdk.ListOptions{
//	    Parent: &sdk.Parent{Resource: "posts", ID: "1"},
//	})
package sdk
