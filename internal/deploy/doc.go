// Package deploy wraps an orchestration client's deploy operation so that the
// active extension's hooks run around every call, in a fixed order:
// pre-deploy hook, argument rewrite, the delegated deploy, post-deploy hook.
package deploy
