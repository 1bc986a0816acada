// Package drive provides the REST client for the cloud file store that
// holds ad template folders and site logos.
//
// The client implements templates.Store: folder lookup scoped under the
// configured template root, image listing filtered to the eligible mime
// types, and raw downloads via alt=media. LogoCache layers a local
// directory over logo downloads so each site logo is fetched once.
package drive
