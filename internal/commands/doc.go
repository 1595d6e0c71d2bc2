// Package commands defines prefix commands (".ellie", ".health") and the
// dispatcher that routes a chat line to them.
//
// Commands only see messages the trigger evaluation declined, so a line that
// both mentions the wake phrase and starts with a prefix is answered once.
package commands
