// Package storecore holds the backend-agnostic store contract shared by the
// root package, its drivers and the storagefake/storagetest helpers.
package storecore
