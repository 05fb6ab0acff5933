// Package desk coordinates the two user-facing operations, submitting work
// and querying feedback, along with the state they share: per-form loading
// flags, the displayed result, transient messages, the active tab and speech
// playback.
//
// The Controller never renders anything itself. Every visible change goes
// through a Presenter, so the same logic drives the terminal UI and the
// headless tests.
package desk
