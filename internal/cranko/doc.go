// Package cranko wraps the external cranko release-automation CLI in typed
// method calls. The tool is treated as a black box: this package only knows
// the invocation surface the deployment pipeline uses.
package cranko
