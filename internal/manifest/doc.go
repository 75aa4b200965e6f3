// Package manifest reads YAML definition manifests and turns each entry
// into a native constructor that can be passed to Define.
//
// A manifest is a list of entries:
//
//	- name: x-counter
//	  callbacks: [connectedCallback, attributeChangedCallback]
//	  observedAttributes: [count]
//	- name: fancy-button
//	  extends: button
//	  formAssociated: true
//	  formCallbacks: [formResetCallback]
//	- name: x-alias
//	  constructor: x-counter
//
// Callbacks record their invocations to a Sink instead of running script.
// The prototype, constructs and upgrade fields inject faults so the
// failure paths of the registry can be exercised from a file.
package manifest
