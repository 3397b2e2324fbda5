// Package agent answers BlueZ pairing and service authorization requests on
// behalf of the logged-in user.
//
// The daemon registers itself as the default agent with the DisplayYesNo
// capability, so the bluetooth service routes passkey confirmations, PIN
// requests and service authorizations here instead of to a desktop applet.
// Decisions are delegated to a Prompter; the default implementation shells
// out to zenity and treats any prompt failure as a refusal.
package agent
