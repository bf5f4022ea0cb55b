// Package module implements the module/element data model and the
// phased lifecycle driver: a Table that walks every registered module in
// declaration order through six ordered phases — allocate, init,
// element_init, post_init, bind, start — calling out to whichever hooks
// each module actually implements.
package module
