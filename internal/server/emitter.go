// Package server routes session emissions to their audience through the hub.
package server

import "log"

// emitter is a session's view of the delivery fabric: it decides the address,
// the hub supplies the mechanism. The hub-backed implementation serves live
// connections; tests substitute a recorder.
type emitter interface {
	toSelf(event string, data any)
	toOthers(event string, data any)
	toRoom(room, event string, data any)
	toRoomOthers(room, event string, data any)
	joinRoom(room string)
	leaveRoom(room string)
}

// clientEmitter routes a session's emissions through the hub on behalf of one
// client connection.
type clientEmitter struct {
	hub    *Hub
	client *Client
}

func (e clientEmitter) deliver(scope Scope, room, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Dropping %s emission for %s: %v", event, e.client.addr, err)
		return
	}
	e.hub.Deliver(BroadcastMessage{
		Sender:  e.client,
		Scope:   scope,
		Room:    room,
		Payload: payload,
	})
}

func (e clientEmitter) toSelf(event string, data any) {
	e.deliver(ScopeSelf, "", event, data)
}

func (e clientEmitter) toOthers(event string, data any) {
	e.deliver(ScopeOthers, "", event, data)
}

func (e clientEmitter) toRoom(room, event string, data any) {
	e.deliver(ScopeRoom, room, event, data)
}

func (e clientEmitter) toRoomOthers(room, event string, data any) {
	e.deliver(ScopeRoomOthers, room, event, data)
}

func (e clientEmitter) joinRoom(room string) {
	e.hub.joinScope(room, e.client)
}

func (e clientEmitter) leaveRoom(room string) {
	e.hub.leaveScope(room, e.client)
}
