// Package cookbook models cookbooks and the gem requirements they declare.
//
// # Overview
//
// A cookbook is a named, versioned unit of configuration. Its metadata may
// declare third-party gems the cookbook needs at runtime:
//
//	# metadata.rb
//	name    "time_ago"
//	version "1.0.0"
//	gem     "time_ago_in_words", "~> 0.1"
//
// The same declaration in the compiled metadata.json form is a tuple:
//
//	{"name": "time_ago", "gems": [["time_ago_in_words", "~> 0.1"]]}
//
// # Collections
//
// [Collection] keeps cookbooks in a stable order. [LoadDir] orders
// cookbooks lexically by directory name; [Load] keeps the order of the paths
// it is given. Consumers iterate with [Collection.All]:
//
//	c, _ := cookbook.LoadDir("cookbooks")
//	for name, v := range c.All() {
//	    fmt.Println(name, len(v.Metadata.Gems))
//	}
package cookbook
