// Package reconcile folds the at-least-once, unordered event feed into two
// coherent point-in-time views: currently open orders and recent trade
// history.
//
// Every display surface consumes the same Reconciler through Snapshot and
// change notifications, so the folding rules exist in exactly one place.
package reconcile
