// Package command defines the canonical command envelope and contract used
// across the write path.
//
// Commands express caller intent. They are the stable boundary before the
// agent decider so that lifecycle rules are evaluated only against
// normalized, validated inputs.
package command
